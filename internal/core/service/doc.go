// Package service provides the domain services for tokenward.
//
// TokenService bundles the four responsibilities of the token
// component: minting (issuer), credential verification (verifier),
// ability checks (authorizer), and revocation (revoker). Services
// contain the business logic and define the storage interface they
// depend on; all state lives behind TokenStore.
package service
