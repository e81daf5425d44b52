package internal

// AllowAllPermissionEvaluator is the default PermissionEvaluator: it
// permits every action unconditionally. A real deployment is expected
// to supply its own evaluator that consults application-level ACLs,
// using the Coalescer's LoadStable when it needs to read a record's
// current value to decide.
type AllowAllPermissionEvaluator struct{}

func NewAllowAllPermissionEvaluator() *AllowAllPermissionEvaluator {
	return &AllowAllPermissionEvaluator{}
}

func (AllowAllPermissionEvaluator) CanPerformAction(user string, msg Message, cb func(err error, allowed bool), authData interface{}, sender Sender) {
	cb(nil, true)
}
