package types

import (
	"fmt"
	"strconv"
	"strings"

	gethCommon "github.com/ethereum/go-ethereum/common"
)

// ExitCode is the status of an applied message, zero is success
type ExitCode uint32

const (
	ExitOk ExitCode = 0

	// system exit codes
	ExitSysSenderInvalid      ExitCode = 1
	ExitSysSenderStateInvalid ExitCode = 2
	ExitSysIllegalInstruction ExitCode = 4
	ExitSysInvalidReceiver    ExitCode = 5
	ExitSysInsufficientFunds  ExitCode = 6
	ExitSysOutOfGas           ExitCode = 7

	// actor exit codes
	ExitUsrIllegalArgument   ExitCode = 16
	ExitUsrNotFound          ExitCode = 17
	ExitUsrForbidden         ExitCode = 18
	ExitUsrInsufficientFunds ExitCode = 19
	ExitUsrIllegalState      ExitCode = 20
	ExitUsrSerialization     ExitCode = 21
	ExitUsrUnhandledMessage  ExitCode = 22
	ExitUsrUnspecified       ExitCode = 23
	ExitUsrAssertionFailed   ExitCode = 24

	// evm contract exit codes
	ExitEVMContractReverted             ExitCode = 33
	ExitEVMContractInvalidInstruction   ExitCode = 34
	ExitEVMContractUndefinedInstruction ExitCode = 35
	ExitEVMContractStackUnderflow       ExitCode = 36
	ExitEVMContractStackOverflow        ExitCode = 37
	ExitEVMContractIllegalMemoryAccess  ExitCode = 38
	ExitEVMContractBadJumpdest          ExitCode = 39
)

var exitCodeNames = map[ExitCode]string{
	ExitOk:                              "Ok",
	ExitSysSenderInvalid:                "SysSenderInvalid",
	ExitSysSenderStateInvalid:           "SysSenderStateInvalid",
	ExitSysIllegalInstruction:           "SysIllegalInstruction",
	ExitSysInvalidReceiver:              "SysInvalidReceiver",
	ExitSysInsufficientFunds:            "SysInsufficientFunds",
	ExitSysOutOfGas:                     "SysOutOfGas",
	ExitUsrIllegalArgument:              "UsrIllegalArgument",
	ExitUsrNotFound:                     "UsrNotFound",
	ExitUsrForbidden:                    "UsrForbidden",
	ExitUsrInsufficientFunds:            "UsrInsufficientFunds",
	ExitUsrIllegalState:                 "UsrIllegalState",
	ExitUsrSerialization:                "UsrSerialization",
	ExitUsrUnhandledMessage:             "UsrUnhandledMessage",
	ExitUsrUnspecified:                  "UsrUnspecified",
	ExitUsrAssertionFailed:              "UsrAssertionFailed",
	ExitEVMContractReverted:             "EVMContractReverted",
	ExitEVMContractInvalidInstruction:   "EVMContractInvalidInstruction",
	ExitEVMContractUndefinedInstruction: "EVMContractUndefinedInstruction",
	ExitEVMContractStackUnderflow:       "EVMContractStackUnderflow",
	ExitEVMContractStackOverflow:        "EVMContractStackOverflow",
	ExitEVMContractIllegalMemoryAccess:  "EVMContractIllegalMemoryAccess",
	ExitEVMContractBadJumpdest:          "EVMContractBadJumpdest",
}

// ParseExitCode reads an exit code given either as its number or as its
// name, with or without the "Exit" prefix ("33", "EVMContractReverted").
func ParseExitCode(s string) (ExitCode, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "Exit")
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return ExitCode(n), nil
	}
	for code, name := range exitCodeNames {
		if strings.EqualFold(name, s) {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown exit code %q", s)
}

// IsSuccess returns true for ExitOk
func (c ExitCode) IsSuccess() bool {
	return c == ExitOk
}

func (c ExitCode) String() string {
	if name, ok := exitCodeNames[c]; ok {
		return fmt.Sprintf("%d(%s)", uint32(c), name)
	}
	return fmt.Sprintf("%d", uint32(c))
}

// Receipt is what the engine returns for an applied message.
// A message that produced a receipt has consumed its sequence number,
// regardless of the exit code.
type Receipt struct {
	ExitCode ExitCode
	// ReturnData is the enveloped return payload (see EncodeReturn). A
	// successful create2 returns the CBOR CreateReturn tuple instead.
	ReturnData []byte
	GasUsed    uint64
	// StateRoot is the engine state root after the message was applied
	StateRoot gethCommon.Hash
}
