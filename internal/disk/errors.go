package disk

import "fmt"

// CapacityError reports a target device below the minimum size policy.
// It is a precondition failure: no destructive command has been issued
// when it is returned.
type CapacityError struct {
	Device    string
	SizeBytes int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("device %s is %d GiB, below the %d GiB minimum",
		e.Device, e.SizeBytes>>30, int64(MinDiskBytes)>>30)
}
