package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPendiente = "pendiente"
	OrderStatusEnProceso = "en_proceso"
	OrderStatusServido   = "servido"
	OrderStatusPagado    = "pagado"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleAdministrador = "administrador"
	UserRoleMesero        = "mesero"
	UserRoleCocina        = "cocina"
	UserRoleCobrador      = "cobrador"
)

// ── Catalog (CHECK constrained in DB) ──

const (
	DishTypeDesayuno = "desayuno"
	DishTypeAlmuerzo = "almuerzo"
	DishTypeCena     = "cena"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodEfectivo = "efectivo"
	PaymentMethodTarjeta  = "tarjeta"
)
