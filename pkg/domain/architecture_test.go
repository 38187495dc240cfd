package domain

import (
	"pantry/testutil"
	"strings"
	"testing"
)

func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must stay free of implementation packages")
	testutil.AssertNoTransitiveDependency(t, ".", func(path string) bool {
		return strings.HasPrefix(path, "pantry/internal/")
	}, "domain must stay free of implementation packages")
}
