package order

import (
	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// ToOrderResponse mapea entidad a DTO.
func ToOrderResponse(o *entity.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SizeID:      it.SizeID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	a := o.ShippingAddress
	return dto.OrderResponse{
		ID:           o.ID,
		UserID:       o.UserID,
		Items:        items,
		Subtotal:     o.Subtotal,
		Tax:          o.Tax,
		ShippingCost: o.ShippingCost,
		Total:        o.Total,
		Status:       o.Status,
		ShippingAddress: dto.ShippingAddressDTO{
			Name: a.Name, Street: a.Street, City: a.City, State: a.State, PostalCode: a.PostalCode, Phone: a.Phone,
		},
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toAddress(a dto.ShippingAddressDTO) entity.ShippingAddress {
	return entity.ShippingAddress{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
	}
}
