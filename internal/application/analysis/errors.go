package analysis

import "fmt"

type countMismatchError struct {
	wantV, wantF int
	gotV, gotF   int
}

func (e *countMismatchError) Error() string {
	return fmt.Sprintf("round trip changed mesh: %d/%d vertices, %d/%d faces", e.gotV, e.wantV, e.gotF, e.wantF)
}
