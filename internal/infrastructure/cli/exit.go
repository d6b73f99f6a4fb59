package cli

// ExitError carries a process exit code through cobra's error return. An
// empty message means the command already printed what the user needs.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}
