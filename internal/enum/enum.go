package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusActive    = "Active"
	OrderStatusReady     = "Ready"
	OrderStatusServed    = "Served"
	OrderStatusCompleted = "Completed"
	OrderStatusCancelled = "Cancelled"
)

const (
	OrderItemStatusPending   = "Pending"
	OrderItemStatusPreparing = "Preparing"
	OrderItemStatusReady     = "Ready"
	OrderItemStatusServed    = "Served"
)

const (
	TableStatusAvailable   = "Available"
	TableStatusOccupied    = "Occupied"
	TableStatusReserved    = "Reserved"
	TableStatusMaintenance = "Maintenance"
)

const (
	BillStatusCompleted = "Completed"
	BillStatusCancelled = "Cancelled"
)

// ── Classifiers (CHECK constrained in DB) ──

const (
	OrderTypeDineIn   = "Dine-In"
	OrderTypeParcel   = "Parcel"
	OrderTypeTakeaway = "Takeaway"
)

const (
	OrderSourceStaff      = "Staff"
	OrderSourceCustomerQR = "Customer-QR"
)

const (
	TransactionTypeSale       = "Sale"
	TransactionTypeReturn     = "Return"
	TransactionTypePurchase   = "Purchase"
	TransactionTypeAdjustment = "Adjustment"
)

const (
	UserRoleAdmin = "admin"
	UserRoleStaff = "staff"
)

// ── Configurable labels (no DB constraint) ──

const (
	TableLocationIndoor  = "Indoor"
	TableLocationOutdoor = "Outdoor"
	TableLocationBalcony = "Balcony"
	TableLocationVIP     = "VIP"
	TableLocationGarden  = "Garden"
)

const (
	TableFloorGround  = "Ground"
	TableFloorFirst   = "First"
	TableFloorSecond  = "Second"
	TableFloorRooftop = "Rooftop"
)

const (
	PaymentModeCash = "Cash"
	PaymentModeCard = "Card"
	PaymentModeUPI  = "UPI"
)
