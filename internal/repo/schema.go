package repo

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "email", Type: field.TypeString, Unique: true, Size: 320},
		{Name: "name", Type: field.TypeString, Size: 255, Default: ""},
		{Name: "password_hash", Type: field.TypeString, Size: 255},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "last_login_at", Type: field.TypeTime, Nullable: true},
	}
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	formsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "owner_id", Type: field.TypeString, Size: 36},
		{Name: "title", Type: field.TypeString, Size: 512},
		{Name: "description", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "fields", Type: field.TypeJSON},
		{Name: "is_active", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	FormsTable = &schema.Table{
		Name:       "forms",
		Columns:    formsColumns,
		PrimaryKey: []*schema.Column{formsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "form_owner_id_created_at", Columns: []*schema.Column{formsColumns[1], formsColumns[6]}},
		},
	}

	responsesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "form_id", Type: field.TypeString, Size: 36},
		{Name: "answers", Type: field.TypeJSON},
		{Name: "source_address", Type: field.TypeString, Nullable: true, Size: 512},
		{Name: "submitted_at", Type: field.TypeTime},
	}
	ResponsesTable = &schema.Table{
		Name:       "responses",
		Columns:    responsesColumns,
		PrimaryKey: []*schema.Column{responsesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "responses_forms_responses",
				Columns:    []*schema.Column{responsesColumns[1]},
				RefColumns: []*schema.Column{formsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "response_form_id_submitted_at", Columns: []*schema.Column{responsesColumns[1], responsesColumns[4]}},
		},
	}

	// Tables holds every table in migration order.
	Tables = []*schema.Table{
		UsersTable,
		FormsTable,
		ResponsesTable,
	}
)

func init() {
	ResponsesTable.ForeignKeys[0].RefTable = FormsTable
}
