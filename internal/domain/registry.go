package domain

// RegistryAPIVersion is the distribution API version announced by a
// registry in the Docker-Distribution-Api-Version header.
type RegistryAPIVersion string

const (
	RegistryAPIV1 RegistryAPIVersion = "registry/1.0"
	RegistryAPIV2 RegistryAPIVersion = "registry/2.0"
)
