package csv

import (
	"strings"
	"testing"

	"github.com/klytics/sheetsight/internal/dataset"
)

func TestReadRecords(t *testing.T) {
	in := "region,sales,note\neast,10,\n\nwest,2.5,\"late, partial\"\n"
	rows, err := ReadRecords(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][1].Key != "sales" || rows[0][1].Value != dataset.Number(10) {
		t.Errorf("unexpected field %+v", rows[0][1])
	}
	if !rows[0][2].Value.IsNull() {
		t.Errorf("empty cell should be null, got %v", rows[0][2].Value)
	}
	if rows[1][2].Value != dataset.String("late, partial") {
		t.Errorf("quoted cell = %v", rows[1][2].Value)
	}
}

func TestReadRecordsRaggedRows(t *testing.T) {
	rows, err := ReadRecords(strings.NewReader("a,a\n1\n1,2,3\n"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(rows[0]) != 3 {
		t.Fatalf("expected rows padded to 3 columns, got %d", len(rows[0]))
	}
	if rows[0][1].Key != "a_1" || rows[0][2].Key != "__EMPTY" {
		t.Errorf("unexpected keys %q %q", rows[0][1].Key, rows[0][2].Key)
	}
	if !rows[0][1].Value.IsNull() || rows[1][2].Value != dataset.Number(3) {
		t.Errorf("unexpected values %v %v", rows[0][1].Value, rows[1][2].Value)
	}
}

func TestReadRecordsEmpty(t *testing.T) {
	rows, err := ReadRecords(strings.NewReader("\n\n"))
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestReadRecordsMalformed(t *testing.T) {
	if _, err := ReadRecords(strings.NewReader("a,b\n\"open,1\n")); err == nil {
		t.Error("expected parse error for unterminated quote")
	}
}
