// Package client is an HTTP client for the courses REST API.
//
// Client implements shopping.Service, so an offline session can wrap it the
// same way it would wrap the adapter itself. Error responses unwrap to the
// shopping sentinels, and transport failures unwrap to
// shopping.ErrStoreUnavailable, which is what sends writes to the offline
// queue.
//
// # Example Usage
//
//	c, err := client.New("http://localhost:8080", "alice")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	lists, err := c.ListLists(ctx)
package client
