// Package snsevents implements the events.Publisher contract on SNS.
package snsevents
