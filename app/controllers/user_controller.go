package controllers

import (
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
)

type UserController struct {
	svc *services.UserService
}

func NewUserController(svc *services.UserService) *UserController {
	return &UserController{svc: svc}
}

// Store handles POST /users: 201 on first sign-in, 200 afterwards.
func (uc *UserController) Store(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := uc.svc.Login(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	if res.Created {
		c.Created(map[string]any{"message": "user created", "insertedId": res.ID})
		return
	}
	c.SuccessMessage("user already exists", nil)
}

// Search handles GET /users/search?email=.
func (uc *UserController) Search(c *ctx.Context) {
	users, err := uc.svc.Search(c.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(users)
}

// ShowRole handles GET /users/{email}/role.
func (uc *UserController) ShowRole(c *ctx.Context) {
	role, err := uc.svc.Role(c.Context(), c.Param("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]any{"role": role})
}

type roleInput struct {
	Role string `json:"role" validate:"required"`
}

// UpdateRole handles PATCH /users/role/{email}.
func (uc *UserController) UpdateRole(c *ctx.Context) {
	var in roleInput
	if !c.BindJSONStrict(&in) {
		return
	}
	role, err := uc.svc.SetRole(c.Context(), c.Param("email"), in.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.SuccessMessage("Role updated to "+string(role), map[string]any{"role": role})
}
