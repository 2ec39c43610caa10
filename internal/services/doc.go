// Package services holds the error taxonomy shared by the engine's
// components and the clients for external services under its subpackages.
//
// Errors are tagged with sentinel markers via Wrap so that the worker can map
// any failure to the queue status it should persist without inspecting
// message text.
package services
