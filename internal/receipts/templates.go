package receipts

import "html/template"

var customerTemplate = template.Must(template.New("customer").Parse(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #f8f9fa; padding: 20px; text-align: center; }
    .order-details { background: #fff; padding: 20px; border: 1px solid #ddd; }
    .item { border-bottom: 1px solid #eee; padding: 10px 0; }
    .total { font-weight: bold; font-size: 18px; margin-top: 20px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Thank you for your order, {{.CustomerName}}!</h1>
    </div>
    <div class="order-details">
      <p><strong>Order ID:</strong> {{.OrderID}}</p>
      <p><strong>Order Date:</strong> {{.OrderDate}}</p>

      <h3>Order Summary:</h3>
      {{range .Items}}
      <div class="item">
        <p><strong>{{.Title}}</strong> - ${{.Price}} x {{.Quantity}}</p>
      </div>
      {{end}}

      <div class="total">
        <p><strong>Total: ${{.Total}}</strong></p>
      </div>

      <h3>Shipping Information:</h3>
      <p><strong>Address:</strong> {{.ShippingAddress}}</p>

      <p>Your order will be processed and shipped within 2-3 business days.</p>
      <p>If you have any questions, please contact our support team.</p>
    </div>
  </div>
</body>
</html>
`))

var adminTemplate = template.Must(template.New("admin").Parse(`<h2>New order received!</h2>
<p><strong>Order ID:</strong> {{.OrderID}}</p>
<p><strong>Customer:</strong> {{.CustomerName}} ({{.CustomerEmail}})</p>
<p><strong>Total:</strong> ${{.Total}}</p>
<p><strong>Shipping Address:</strong> {{.ShippingAddress}}</p>
<p><strong>Items:</strong> {{.ItemCount}} items</p>
`))
