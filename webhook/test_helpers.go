package webhook

import "github.com/stretchr/testify/mock"

// MatchWebhook creates a custom matcher for webhook arguments in mocks
func MatchWebhook(matcher func(Webhook) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchCapture matches the CaptureRequest a transport hands to UseCase.Capture
func MatchCapture(matcher func(CaptureRequest) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchSummary matches the summary handed to Publisher.Publish
func MatchSummary(matcher func(Summary) bool) interface{} {
	return mock.MatchedBy(matcher)
}
