// Package fetch is the boundary to the fetch collaborator. The staging core
// only needs a Fetcher that turns a URL into a verified local path; network
// download and caching live elsewhere. LocalFetcher serves file:// URLs and
// plain paths, which is all the CLI and the tests need.
package fetch
