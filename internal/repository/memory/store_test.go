package memory

import (
	"testing"

	"github.com/kailas-cloud/patentdex/internal/repository/recordtest"
)

func TestStore_Suite(t *testing.T) {
	recordtest.Run(t, func(*testing.T) recordtest.Store { return New() })
}
