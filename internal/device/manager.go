package device

import (
	"fmt"
	"sync"
)

var (
	instance *Reconciler
	mu       sync.RWMutex
)

// Initialize sets up the process-wide reconciler instance. The slot is a
// single global cell by design: every delivery channel callback in the
// process writes through the same reconciler. Later calls are ignored.
func Initialize(rec *Reconciler) {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = rec
	}
}

// GetReconciler returns the global reconciler instance, or nil if not
// initialized.
func GetReconciler() *Reconciler {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// SetReconcilerForTesting installs a custom instance for tests only.
// Returns an error if the reconciler is already initialized.
func SetReconcilerForTesting(rec *Reconciler) error {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil && rec != nil {
		return fmt.Errorf("device reconciler already initialized")
	}
	instance = rec
	return nil
}

// IsInitialized checks whether the global reconciler has been set up.
func IsInitialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return instance != nil
}
