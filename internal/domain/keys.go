package domain

// KeyPrefix namespaces all database keys written by this service.
const KeyPrefix = "kirei:"
