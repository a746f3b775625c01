package shared

// ActionType enumerates every auditable operation.
type ActionType string

const (
	ActionStockAdd       ActionType = "STOCK_ADD"
	ActionStockUpdate    ActionType = "STOCK_UPDATE"
	ActionStockDelete    ActionType = "STOCK_DELETE"
	ActionOrderAdd       ActionType = "ORDER_ADD"
	ActionOrderValidate  ActionType = "ORDER_VALIDATE"
	ActionOrderCancel    ActionType = "ORDER_CANCEL"
	ActionRecipeAdd      ActionType = "RECIPE_ADD"
	ActionRecipeUpdate   ActionType = "RECIPE_UPDATE"
	ActionRecipeUseStock ActionType = "RECIPE_USE_STOCK"
	ActionRecipeDelete   ActionType = "RECIPE_DELETE"
	ActionSaleCreate     ActionType = "SALE_CREATE"
	ActionSaleComplete   ActionType = "SALE_COMPLETE"
)

// ActionTypes lists all known action types in a stable order.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionStockAdd, ActionStockUpdate, ActionStockDelete,
		ActionOrderAdd, ActionOrderValidate, ActionOrderCancel,
		ActionRecipeAdd, ActionRecipeUpdate, ActionRecipeUseStock, ActionRecipeDelete,
		ActionSaleCreate, ActionSaleComplete,
	}
}
