package memory_test

import (
	"testing"
	"time"

	"github.com/mynextid/private-score/store/memory"
	"github.com/mynextid/private-score/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, memory.New(), time.Now())
}
