package domain

import (
	"testing"

	"freezercore/testutil"
)

func TestDomainStaysDependencyFree(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"pkg/domain must not depend on internal packages")
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImportForbidden,
		"pkg/domain must stay importable without third-party modules")
}
