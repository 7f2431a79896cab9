package ws

import "testing"

func TestInitServer_EnablesBroadcast(t *testing.T) {
	Server = nil
	defer func() {
		Close()
		Server = nil
	}()

	// Publishing before initialization is dropped without panicking
	PublishWalletStatus(map[string]interface{}{"connected": false})

	if err := InitServer(storeWith(0), nil); err != nil {
		t.Fatalf("InitServer() failed: %v", err)
	}
	if Server == nil {
		t.Fatal("Expected Server to be set after InitServer")
	}
	if store == nil {
		t.Error("Expected event store to be set after InitServer")
	}

	PublishWalletStatus(map[string]interface{}{"connected": true})
}
