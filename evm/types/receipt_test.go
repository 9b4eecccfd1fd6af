package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseExitCode(t *testing.T) {
	t.Parallel()

	for input, expected := range map[string]ExitCode{
		"0":                       ExitOk,
		" 33 ":                    ExitEVMContractReverted,
		"EVMContractReverted":     ExitEVMContractReverted,
		"ExitEVMContractReverted": ExitEVMContractReverted,
		"usrforbidden":            ExitUsrForbidden,
		"4000":                    ExitCode(4000),
	} {
		code, err := ParseExitCode(input)
		require.NoError(t, err, input)
		require.Equal(t, expected, code, input)
	}

	for _, input := range []string{"", "-1", "Reverted", "0x21"} {
		_, err := ParseExitCode(input)
		require.Error(t, err, input)
	}

	require.Equal(t, "33(EVMContractReverted)", ExitEVMContractReverted.String())
	require.Equal(t, "4000", ExitCode(4000).String())
}
