// Package source contains object store adapters and decorators shared by
// them. Backend implementations live in the swift and s3 subpackages.
package source
