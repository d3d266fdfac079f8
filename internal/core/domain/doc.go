// Package domain defines the core domain model for tokenward: the
// Token entity, owner references, credential encoding, and the
// structured error taxonomy shared by services and storage.
package domain
