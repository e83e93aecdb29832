package memory

import (
	"testing"

	"github.com/DaveMcBlame1/chatroom/internal/store"
	"github.com/DaveMcBlame1/chatroom/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
