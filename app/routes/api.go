// Package routes declares the /api route table.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/kabadi/app/controllers"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/pkg/auth"
	"github.com/shashiranjanraj/kabadi/pkg/ctx"
	"github.com/shashiranjanraj/kabadi/pkg/middleware"
	"github.com/shashiranjanraj/kabadi/pkg/rbac"
	"github.com/shashiranjanraj/kabadi/pkg/router"
)

// API holds what the route table dispatches to.
type API struct {
	Issuer     *auth.Issuer
	Auth       *controllers.AuthController
	Items      *controllers.ItemController
	Orders     *controllers.OrderController
	Deliveries *controllers.DeliveryController
	Feed       http.Handler
}

func RegisterAPI(r *router.Router, a API) {
	authenticated := middleware.Authenticate(a.Issuer)

	api := r.Group("/api")

	users := api.Group("/users")
	users.Post("/register", "users.register", ctx.Wrap(a.Auth.Register))
	users.Post("/login", "users.login", ctx.Wrap(a.Auth.Login))
	users.Get("/profile", "users.profile", ctx.Wrap(a.Auth.Profile), authenticated)
	users.Put("/profile", "users.profile.update", ctx.Wrap(a.Auth.UpdateProfile), authenticated)

	items := api.Group("/items")
	items.Get("/", "items.index", ctx.Wrap(a.Items.Index))
	items.Get("/{id}", "items.show", ctx.Wrap(a.Items.Show))

	sellers := items.Group("", authenticated, can(policies.ActionManageItems))
	sellers.Post("/", "items.store", ctx.Wrap(a.Items.Store))
	sellers.Get("/own", "items.own", ctx.Wrap(a.Items.Own))
	sellers.Get("/status", "items.status", ctx.Wrap(a.Items.Statuses))
	sellers.Put("/{id}", "items.update", ctx.Wrap(a.Items.Update))
	sellers.Delete("/{id}", "items.destroy", ctx.Wrap(a.Items.Destroy))

	orders := api.Group("/orders", authenticated)
	orders.Post("/", "orders.store", ctx.Wrap(a.Orders.Store), can(policies.ActionPlaceOrder))
	orders.Get("/", "orders.own", ctx.Wrap(a.Orders.Own), can(policies.ActionListOwnOrders))
	orders.Get("/vendor", "orders.vendor", ctx.Wrap(a.Orders.Vendor), can(policies.ActionListVendorOrders))
	orders.Get("/seller", "orders.seller", ctx.Wrap(a.Orders.Seller), can(policies.ActionListSellerOrders))
	orders.Get("/admin/all", "orders.all", ctx.Wrap(a.Orders.All), can(policies.ActionListAllOrders))
	orders.Put("/{id}/status", "orders.status", ctx.Wrap(a.Orders.UpdateStatus), can(policies.ActionSetOrderStatus))
	orders.Put("/{id}/assign-delivery", "orders.assign", ctx.Wrap(a.Orders.AssignDeliveryPerson), can(policies.ActionAssignDeliveryPerson))

	deliveries := api.Group("/deliveries", authenticated)
	deliveries.Get("/", "deliveries.mine", ctx.Wrap(a.Deliveries.Mine), can(policies.ActionListDeliveries))
	deliveries.Get("/unassigned", "deliveries.unassigned", ctx.Wrap(a.Deliveries.Unassigned), can(policies.ActionListDeliveries))
	deliveries.Put("/{id}/assign", "deliveries.claim", ctx.Wrap(a.Deliveries.Claim), can(policies.ActionClaimDelivery))
	deliveries.Put("/{id}/status", "deliveries.status", ctx.Wrap(a.Deliveries.UpdateStatus), can(policies.ActionUpdateDeliveryStatus))
	if a.Feed != nil {
		deliveries.Get("/feed", "deliveries.feed", a.Feed.ServeHTTP, can(policies.ActionListDeliveries))
	}
}

// can gates a route on the roles the policy allows for action. Services
// check the same policy again.
func can(action policies.Action) router.Middleware {
	roles := policies.RolesFor(action)
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return rbac.HasRole(names...)
}
