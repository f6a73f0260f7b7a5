package entity

// Templates holds the email sent for each alert kind. Kinds without an
// entry are not mailed.
var Templates = map[AlertKind]Template{
	AlertKindLockout: {
		Subject: "Your account is temporarily locked",
		Body: `<p>Hello,</p>
<p>We locked second factor verification on your {{.company_name}} account after too many incorrect PINs on {{.occurred_at}}.</p>
<p>You can request a new PIN in {{.lockout_minutes}} minutes. If this was not you, contact {{.support_email}} right away.</p>
<p>&copy; {{.year}} {{.company_name}}</p>`,
	},
}
