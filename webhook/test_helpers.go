package webhook

import "github.com/stretchr/testify/mock"

// MatchDestination creates a custom matcher for destination arguments in mocks
func MatchDestination(matcher func(Destination) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchLog creates a custom matcher for delivery log arguments in mocks
func MatchLog(matcher func(DeliveryLog) bool) interface{} {
	return mock.MatchedBy(matcher)
}
