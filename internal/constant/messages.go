package constant

// User-facing texts. Internal error details never reach these.
const (
	HandoffMessage      = "Thanks, your request is already with our subsidy assistant. Please wait a moment while we prepare the details."
	NotFoundMessage     = "Sorry, we could not find a subsidy that matches your message."
	GenericErrorMessage = "Sorry, we cannot process your message right now. Please try again later."

	UnrecognizedSelectionMessage = "That selection was not recognized."
	MissingCandidateMessage      = "No subsidy was specified in that selection."
	CandidateNotFoundMessage     = "The selected subsidy could not be found. Please send your question again."
	CancelMessage                = "Okay, we have ended the subsidy check."
	SelectedMessageFormat        = "You selected %s. We will now ask a few questions to check the application requirements."

	PresentSingleAltText   = "A subsidy was found"
	PresentSingleFormat    = "We found %s. Would you like to check the application requirements?"
	PresentSingleYesLabel  = "Yes"
	PresentSingleNoLabel   = "No"
	PresentMultipleAltText = "Please choose a subsidy"
	PresentMultipleTitle   = "Matching subsidies"
	PresentMultipleHint    = "Choose the subsidy you want to check"
	PresentSelectLabel     = "Check this one"
	PresentCancelTitle     = "None of these?"
	PresentCancelLabel     = "Don't check"
)
