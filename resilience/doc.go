// Package resilience provides the fault-isolation layer for named
// operations: a circuit breaker state machine and a command set that wraps
// registered operations with breaker protection and caller-fault versus
// system-fault classification.
//
//	set, _ := resilience.NewCommandSet(resilience.DefaultSetConfig(), log,
//	    resilience.CommandSpec{
//	        Name: "save-user",
//	        Op:   saveUser,
//	        Classify: func(err error) string {
//	            if errors.Is(err, ErrInvalidInput) {
//	                return "invalid user payload"
//	            }
//	            return ""
//	        },
//	    },
//	)
//	out, err := set.Invoke(ctx, "cmd-save-user", user)
//
// A classifier returning a non-empty message marks the failure as the
// caller's fault; it surfaces as CALLER_FAULT and is excluded from breaker
// trip accounting. Any other failure surfaces as SYSTEM_FAULT and counts
// toward opening the circuit. The default classifier treats every failure
// as systemic.
package resilience
