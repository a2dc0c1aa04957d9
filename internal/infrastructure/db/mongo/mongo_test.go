package mongo

import (
	"context"
	"testing"
)

func TestConnect_RequiresURIAndDatabase(t *testing.T) {
	for _, cfg := range []Config{
		{},
		{URI: "mongodb://localhost:27017"},
		{Database: "escrow"},
	} {
		if _, err := Connect(context.Background(), cfg); err == nil {
			t.Errorf("Connect(%+v): expected error", cfg)
		}
	}
}
