package collection

import (
	"strings"
	"testing"
)

func TestValidateOK(t *testing.T) {
	c, err := Parse([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsEveryBrokenChainReference(t *testing.T) {
	const doc = `
recipes:
  ping:
    method: GET
    url: "https://x"

chains:
  a:
    source:
      request:
        recipe: does_not_exist
  b:
    source:
      request:
        recipe: also_missing
  c:
    source:
      request:
        recipe: ping
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = c.Validate()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "does_not_exist") || !strings.Contains(msg, "also_missing") {
		t.Fatalf("expected both broken references reported, got: %s", msg)
	}
	if strings.Contains(msg, `"ping"`) {
		t.Fatalf("chain c references an existing recipe, should not be reported: %s", msg)
	}
}
