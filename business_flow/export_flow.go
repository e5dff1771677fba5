package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/repository"
	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/xuri/excelize/v2"
)

// ExportFlow produces spreadsheet downloads of customer data for the admin tier
type ExportFlow interface {
	DownloadCustomersExcel(ctx context.Context, req *dto.ListCustomersRequest, actorID uint) (string, []byte, error)
}

// ExportFlowImpl implements ExportFlow
type ExportFlowImpl struct {
	userRepo     repository.UserRepository
	customerFlow CustomerFlow
	location     *time.Location
}

func NewExportFlow(
	userRepo repository.UserRepository,
	customerFlow CustomerFlow,
	location *time.Location,
) ExportFlow {
	return &ExportFlowImpl{
		userRepo:     userRepo,
		customerFlow: customerFlow,
		location:     location,
	}
}

// DownloadCustomersExcel streams the filtered customer set into one worksheet.
// The export walks the full match set page by page, so the same filters that
// drive the list view drive the file.
func (f *ExportFlowImpl) DownloadCustomersExcel(ctx context.Context, req *dto.ListCustomersRequest, actorID uint) (string, []byte, error) {
	actor, err := loadActiveUser(ctx, f.userRepo, actorID)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to resolve actor", err)
	}
	if !actor.IsAdminTier() {
		return "", nil, NewBusinessError("NOT_AUTHORIZED", "Export requires admin tier", ErrAdminTierRequired)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"id", "phone", "name", "address", "memo", "owner_status", "assigned_user", "assigned_site", "is_duplicate", "is_blacklisted", "call_count", "created_at", "updated_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	rowIndex := 2
	pageReq := *req
	pageReq.Page = 1
	pageReq.Limit = utils.MaxPageSize
	for {
		page, err := f.customerFlow.ListCustomers(ctx, &pageReq, actorID)
		if err != nil {
			return "", nil, err
		}
		for _, c := range page.Data {
			address := ""
			if c.Address != nil {
				address = *c.Address
			}
			memo := ""
			if c.Memo != nil {
				memo = *c.Memo
			}
			assignedUser := ""
			if c.AssignedUserName != nil {
				assignedUser = *c.AssignedUserName
			}
			site := ""
			if c.AssignedSite != nil {
				site = *c.AssignedSite
			}
			record := []string{
				strconv.FormatUint(uint64(c.ID), 10),
				c.Phone,
				c.Name,
				address,
				memo,
				c.OwnerStatus,
				assignedUser,
				site,
				strconv.FormatBool(c.IsDuplicate),
				strconv.FormatBool(c.IsBlacklisted),
				strconv.FormatInt(c.CallCount, 10),
				c.CreatedAt.In(f.location).Format(time.RFC3339),
				c.UpdatedAt.In(f.location).Format(time.RFC3339),
			}
			cellRef, _ := excelize.CoordinatesToCellName(1, rowIndex)
			_ = xl.SetSheetRow(sheet, cellRef, &record)
			rowIndex++
		}
		if pageReq.Page >= page.Pagination.TotalPages {
			break
		}
		pageReq.Page++
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("customers_%s.xlsx", utils.LocalDay(utils.UTCNow(), f.location))
	return filename, buf.Bytes(), nil
}
