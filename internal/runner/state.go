package runner

// State names one stop in the run's lifecycle. Transitions are strictly
// forward; CLEANED_UP is reachable from every state so browser resources
// are released even on fatal paths.
type State string

const (
	StateUninitialized  State = "UNINITIALIZED"
	StateInitialized    State = "INITIALIZED"
	StateAuthenticating State = "AUTHENTICATING"
	StateAuthenticated  State = "AUTHENTICATED"
	StateAuthFailed     State = "AUTH_FAILED"
	StateIterating      State = "ITERATING"
	StateClean          State = "CLEAN"
	StateExhausted      State = "EXHAUSTED"
	StateCleanedUp      State = "CLEANED_UP"
)

// Outcome is how a run ended. EXHAUSTED is a result, not a harness error:
// persistent failures remain for the caller to interpret.
type Outcome string

const (
	OutcomeClean      Outcome = "CLEAN"
	OutcomeExhausted  Outcome = "EXHAUSTED"
	OutcomeAuthFailed Outcome = "AUTH_FAILED"
)

// ExitCode maps an outcome to the process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeClean:
		return 0
	case OutcomeExhausted:
		return 1
	default:
		return 2
	}
}
