// Package fixtures provides test data factories for the Herald API.
//
// Factory methods insert users and publish records with sensible defaults;
// option functions override individual fields:
//
//	user := f.CreateUser(t, fixtures.WithEmail("owner@acme.test"))
//	rec := f.CreatePublishRecord(t, fixtures.WithPostID(post.ID))
//
// Test data is removed with the namespace when the test database closes.
package fixtures
