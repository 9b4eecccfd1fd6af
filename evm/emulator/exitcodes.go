package emulator

import (
	"errors"

	gethCore "github.com/ethereum/go-ethereum/core"
	gethVM "github.com/ethereum/go-ethereum/core/vm"

	"github.com/onflow/evm-call-harness/evm/types"
)

// exitCodeOf maps the vm error of an applied message to its exit code
func exitCodeOf(vmErr error) types.ExitCode {
	if vmErr == nil {
		return types.ExitOk
	}

	var (
		underflow *gethVM.ErrStackUnderflow
		overflow  *gethVM.ErrStackOverflow
		invalidOp *gethVM.ErrInvalidOpCode
	)
	switch {
	case errors.Is(vmErr, gethVM.ErrExecutionReverted):
		return types.ExitEVMContractReverted
	case errors.Is(vmErr, gethVM.ErrOutOfGas),
		errors.Is(vmErr, gethVM.ErrCodeStoreOutOfGas),
		errors.Is(vmErr, gethVM.ErrGasUintOverflow):
		return types.ExitSysOutOfGas
	case errors.Is(vmErr, gethVM.ErrInsufficientBalance),
		errors.Is(vmErr, gethCore.ErrInsufficientFundsForTransfer):
		return types.ExitSysInsufficientFunds
	case errors.Is(vmErr, gethVM.ErrContractAddressCollision):
		return types.ExitUsrForbidden
	case errors.Is(vmErr, gethVM.ErrMaxInitCodeSizeExceeded):
		return types.ExitUsrIllegalArgument
	case errors.Is(vmErr, gethVM.ErrInvalidJump):
		return types.ExitEVMContractBadJumpdest
	case errors.Is(vmErr, gethVM.ErrReturnDataOutOfBounds):
		return types.ExitEVMContractIllegalMemoryAccess
	case errors.Is(vmErr, gethVM.ErrWriteProtection),
		errors.Is(vmErr, gethVM.ErrInvalidCode),
		errors.Is(vmErr, gethVM.ErrMaxCodeSizeExceeded):
		return types.ExitEVMContractInvalidInstruction
	case errors.As(vmErr, &invalidOp):
		return types.ExitEVMContractUndefinedInstruction
	case errors.As(vmErr, &underflow):
		return types.ExitEVMContractStackUnderflow
	case errors.As(vmErr, &overflow):
		return types.ExitEVMContractStackOverflow
	default:
		return types.ExitUsrUnspecified
	}
}
