// Package sms defines the contract for delivering text messages to phones.
//
// Use cases depend on the SMS interface; the concrete providers (Amazon SNS,
// a log-only provider for local development) are selected by NewFromDriver.
package sms
