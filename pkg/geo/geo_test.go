package geo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPProvider_Locate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success","lat":37.7749,"lon":-122.4194,"city":"San Francisco","country":"United States"}`)
	}))
	defer srv.Close()

	p := &IPProvider{Endpoint: srv.URL}
	loc, err := p.Locate(context.Background())
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if loc.Latitude != 37.7749 || loc.Longitude != -122.4194 {
		t.Errorf("location = %+v", loc)
	}
	if loc.City != "San Francisco" {
		t.Errorf("city = %q", loc.City)
	}
}

func TestIPProvider_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"fail","message":"private range"}`)
	}))
	defer srv.Close()

	p := &IPProvider{Endpoint: srv.URL}
	if _, err := p.Locate(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestStatic(t *testing.T) {
	p := Static{Location: Location{Latitude: 1, Longitude: 2}}
	loc, err := p.Locate(context.Background())
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if loc.Latitude != 1 || loc.Longitude != 2 {
		t.Errorf("location = %+v", loc)
	}
}
