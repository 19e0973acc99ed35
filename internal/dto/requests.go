package dto

import "github.com/shopspring/decimal"

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries the whitelisted profile fields. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name      *string          `json:"name" binding:"omitempty,personname"`
	Country   *string          `json:"country" binding:"omitempty,notblank"`
	Phone     *string          `json:"phone" binding:"omitempty,phone"`
	Addresses *[]AddressRequest `json:"addresses" binding:"omitempty,dive"`
}

type AddressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street" binding:"required,notblank"`
	Department string `json:"department"`
	Province   string `json:"province"`
	District   string `json:"district"`
	IsPrimary  bool   `json:"isPrimary"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,password"`
}

type CreateProductRequest struct {
	Title       string           `json:"title" binding:"required,notblank"`
	Description string           `json:"description"`
	Image       string           `json:"image" binding:"required,notblank"`
	Category    string           `json:"category" binding:"required,notblank"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0,max=2147483647"`
}

// UpdateProductRequest carries the whitelisted product fields. Nil fields are left untouched.
type UpdateProductRequest struct {
	Title       *string          `json:"title" binding:"omitempty,notblank"`
	Description *string          `json:"description"`
	Image       *string          `json:"image" binding:"omitempty,notblank"`
	Category    *string          `json:"category" binding:"omitempty,notblank"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0,max=2147483647"`
}

type CartLineRequest struct {
	ID       string          `json:"id" binding:"required,uuid"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" binding:"required,min=1,max=2147483647"`
}

type ShippingRequest struct {
	Address string `json:"address" binding:"required,notblank"`
	City    string `json:"city" binding:"required,notblank"`
	Postal  string `json:"postal" binding:"required,notblank"`
}

type CreateOrderRequest struct {
	Cart     []CartLineRequest `json:"cart" binding:"required,min=1,dive"`
	Total    *decimal.Decimal  `json:"total" binding:"required"`
	Shipping ShippingRequest   `json:"shipping"`
}

type ReduceStockRequest struct {
	Cart []CartLineRequest `json:"cart" binding:"required,min=1,dive"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user assistant admin"`
}
