package httpengine

import "testing"

func TestBuildURLAndQuery(t *testing.T) {
	req, err := Build(BuildInput{
		Method: "GET",
		URL:    "https://api.example.com/users?existing=1",
		Query: []QueryParam{
			{Key: "tag", Value: "a"},
			{Key: "tag", Value: "b"},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	q := req.URL.Query()
	if got := q["tag"]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("tag query params = %v", got)
	}
	if got := q.Get("existing"); got != "1" {
		t.Errorf("existing query param = %q", got)
	}
}

func TestBuildQueryPreservesCrossKeyOrder(t *testing.T) {
	req, err := Build(BuildInput{
		Method: "GET",
		URL:    "https://api.example.com",
		Query: []QueryParam{
			{Key: "z", Value: "1"},
			{Key: "a", Value: "2"},
			{Key: "z", Value: "3"},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := req.URL.RawQuery; got != "z=1&a=2&z=3" {
		t.Errorf("RawQuery = %q, want insertion order preserved (not alphabetized)", got)
	}
}

func TestBuildAuthAppliedLast(t *testing.T) {
	req, err := Build(BuildInput{
		Method:  "GET",
		URL:     "https://api.example.com",
		Headers: []HeaderField{{Name: "Authorization", Value: "should-be-overridden"}},
		Auth:    &Auth{Kind: AuthBearer, Token: "tok123"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer tok123" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestBuildJSONBodyRejectsInvalidJSON(t *testing.T) {
	_, err := Build(BuildInput{
		Method: "POST",
		URL:    "https://api.example.com",
		Body:   &Body{Kind: BodyJSON, Raw: []byte(`{not json`)},
	})
	if err == nil {
		t.Fatal("expected error for invalid json body")
	}
}

func TestBuildFormURLEncoded(t *testing.T) {
	req, err := Build(BuildInput{
		Method: "POST",
		URL:    "https://api.example.com",
		Body: &Body{
			Kind: BodyFormURLEncoded,
			Form: []FormField{{Name: "a", Value: "1"}, {Name: "b", Value: "x y"}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("content-type = %q", ct)
	}
	if string(req.Body) != "a=1&b=x+y" {
		t.Errorf("body = %q", req.Body)
	}
}

func TestInferContentTypeJSON(t *testing.T) {
	if got := inferContentType([]byte(`{"a":1}`)); got != "application/json; charset=utf-8" {
		t.Errorf("inferContentType(json) = %q", got)
	}
	if got := inferContentType([]byte(`hello world`)); got != "text/plain; charset=utf-8" {
		t.Errorf("inferContentType(text) = %q", got)
	}
}
