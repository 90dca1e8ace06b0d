package domain

// FileType identifies a recognized SAP export.
type FileType string

const (
	FileTypeCooispi FileType = "COOISPI"
	FileTypeMb51    FileType = "MB51"
	FileTypeZrmm024 FileType = "ZRMM024"
	FileTypeZrsd002 FileType = "ZRSD002"
	FileTypeZrsd004 FileType = "ZRSD004"
	FileTypeZrsd006 FileType = "ZRSD006"
	FileTypeZrfi005 FileType = "ZRFI005"
	FileTypeTarget  FileType = "TARGET"
	FileTypeZrpp062 FileType = "ZRPP062"
)

// FileTypes lists every recognized export in detection priority order.
func FileTypes() []FileType {
	return []FileType{
		FileTypeCooispi, FileTypeMb51, FileTypeZrmm024,
		FileTypeZrsd002, FileTypeZrsd004, FileTypeZrsd006,
		FileTypeZrfi005, FileTypeTarget, FileTypeZrpp062,
	}
}

// OrderStatus is the production order lifecycle state.
type OrderStatus string

const (
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusWIP       OrderStatus = "WIP"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusInTransit OrderStatus = "IN_TRANSIT"
)

// OrderType classifies a lead-time fact row.
type OrderType string

const (
	OrderTypeMTO      OrderType = "MTO"
	OrderTypeMTS      OrderType = "MTS"
	OrderTypePurchase OrderType = "PURCHASE"
)

// DeliveryStatus summarizes the 601/602 netting outcome for a batch.
type DeliveryStatus string

const (
	DeliveryFullyReversed     DeliveryStatus = "FULLY_REVERSED"
	DeliveryPartiallyReversed DeliveryStatus = "PARTIALLY_REVERSED"
	DeliveryDelivered         DeliveryStatus = "DELIVERED"
)

// AlertSeverity orders alerts for triage.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "CRITICAL"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityMedium   AlertSeverity = "MEDIUM"
)

// AlertStatus tracks the alert lifecycle.
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "ACTIVE"
	AlertStatusResolved AlertStatus = "RESOLVED"
)

// AlertTypeDelayedTransit flags P01 batches stuck between factory finish
// and DC receipt.
const AlertTypeDelayedTransit = "DELAYED_TRANSIT"

// UploadStatus tracks an upload run.
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)
