// Package stream defines the third-party content metadata model and the
// capability interfaces vantage consumes from metrics providers. Providers
// are external collaborators; this package only fixes the contract.
package stream
