package advice

// JoinPoint describes one intercepted call.
type JoinPoint struct {
	Target  string
	Method  string
	Subject any
	CallID  string
}

func (jp JoinPoint) String() string {
	return jp.Target + "@" + jp.Method
}
