package in

import (
	"context"

	sweepdto "saferun/internal/modules/sweep/dto"
	sweepin "saferun/internal/modules/sweep/port/in"
)

type CLIHandler struct {
	usecase sweepin.Usecase
}

func NewCLIHandler(usecase sweepin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) RunOnce(ctx context.Context) (sweepdto.ReportOutput, error) {
	return h.usecase.RunPass(ctx)
}
