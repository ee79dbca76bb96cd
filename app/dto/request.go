package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"
)

type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Phone    string `json:"phone" form:"phone"`
	Address  string `json:"address" form:"address"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(3, 31)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.Address, validation.Required, validation.Length(3, 0)),
	)
}

type ActivateRequest struct {
	Token string `json:"token" form:"token"`
}

func NewActivateRequestFromContext(ctx echo.Context) (*ActivateRequest, error) {
	var body ActivateRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *ActivateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required),
	)
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateUserRequest carries the mutable profile fields. Email is bound so
// the service can reject attempts to change it.
type UpdateUserRequest struct {
	Name    string `json:"name" form:"name"`
	Phone   string `json:"phone" form:"phone"`
	Address string `json:"address" form:"address"`
	Email   string `json:"email" form:"email"`
}

func NewUpdateUserRequestFromContext(ctx echo.Context) (*UpdateUserRequest, error) {
	var body UpdateUserRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Length(3, 31)),
		validation.Field(&r.Address, validation.Length(3, 0)),
	)
}

type ManageUserRequest struct {
	Action string `json:"action" form:"action"`
}

func NewManageUserRequestFromContext(ctx echo.Context) (*ManageUserRequest, error) {
	var body ManageUserRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *ManageUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Action, validation.Required),
	)
}

type UpdatePasswordRequest struct {
	OldPassword       string `json:"oldPassword" form:"oldPassword"`
	NewPassword       string `json:"newPassword" form:"newPassword"`
	ConfirmedPassword string `json:"confirmedPassword" form:"confirmedPassword"`
}

func NewUpdatePasswordRequestFromContext(ctx echo.Context) (*UpdatePasswordRequest, error) {
	var body UpdatePasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *UpdatePasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.ConfirmedPassword, validation.Required),
	)
}

type ForgetPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

func NewForgetPasswordRequestFromContext(ctx echo.Context) (*ForgetPasswordRequest, error) {
	var body ForgetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *ForgetPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ResetPasswordRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

func NewResetPasswordRequestFromContext(ctx echo.Context) (*ResetPasswordRequest, error) {
	var body ResetPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
	)
}

type CreateProductRequest struct {
	Name        string  `json:"name" form:"name"`
	Description string  `json:"description" form:"description"`
	Price       float64 `json:"price" form:"price"`
	Quantity    int     `json:"quantity" form:"quantity"`
	Shipping    float64 `json:"shipping" form:"shipping"`
	Category    string  `json:"category" form:"category"`
}

func NewCreateProductRequestFromContext(ctx echo.Context) (*CreateProductRequest, error) {
	var body CreateProductRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *CreateProductRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(4, 150)),
		validation.Field(&r.Description, validation.Required, validation.Length(4, 0)),
		validation.Field(&r.Price, validation.Required, validation.Min(0.01)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.Category, validation.Required),
	)
}

// UpdateProductRequest uses pointers so absent fields stay untouched.
type UpdateProductRequest struct {
	Name        *string  `json:"name" form:"name"`
	Description *string  `json:"description" form:"description"`
	Price       *float64 `json:"price" form:"price"`
	Quantity    *int     `json:"quantity" form:"quantity"`
	Sold        *int     `json:"sold" form:"sold"`
	Shipping    *float64 `json:"shipping" form:"shipping"`
}

func NewUpdateProductRequestFromContext(ctx echo.Context) (*UpdateProductRequest, error) {
	var body UpdateProductRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *UpdateProductRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Length(4, 150)),
		validation.Field(&r.Description, validation.Length(4, 0)),
	)
}

type CategoryRequest struct {
	Name string `json:"name" form:"name"`
}

func NewCategoryRequestFromContext(ctx echo.Context) (*CategoryRequest, error) {
	var body CategoryRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *CategoryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(3, 31)),
	)
}
