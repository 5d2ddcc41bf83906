// Package fakes provides test doubles for shipkey's store and target
// interfaces.
//
// Fakes are manually implemented in-memory versions with builder methods for
// seeding data and injecting failures. They are more realistic than the mock
// command executor and are meant for workflow-level tests that do not care
// how a store lays records out.
//
// Usage:
//
//	fake := fakes.NewFakeBackend("memory").
//	    WithSecret(ref, "sk-123").
//	    WithWriteError("Stripe", errors.New("locked"))
//
//	value, err := fake.Read(ctx, ref)
package fakes
