// Package mocks provides test doubles for ports interfaces.
//
// These mocks are simple, thread-safe, in-memory implementations suitable
// for unit testing. Each mock provides:
//
//   - Default behavior backed by in-memory state
//   - Callback functions (XxxFn) for customizing behavior per test
//   - Helper methods for setting state directly
//
// # Usage Example
//
//	func TestExtract(t *testing.T) {
//		fetcher := mocks.NewPageFetcher()
//		fetcher.SetHTML("https://example.com/a", "<title>A</title>")
//
//		ext := extract.NewExtractor(fetcher, mocks.NewVKClient(), nil, domain.Limits{}, &logger)
//		// ... test extraction
//	}
//
// # Available Mocks
//
//   - PageFetcher: implements ports.PageFetcher
//   - VKClient: implements ports.VKClient
//   - PostStore: implements ports.PostStore
package mocks
