package cli

import "fmt"

type syncFailedError struct {
	failed int
	total  int
}

func (e syncFailedError) Error() string {
	return fmt.Sprintf("%d of %d changes failed to sync", e.failed, e.total)
}
