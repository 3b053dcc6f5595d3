// Package cli provides the interactive poreview shell.
//
// The shell reads one command per line and dispatches it to the record,
// notification and file stores of an initialized app.App. Auth state changes,
// including a remote session expiring on its own, are printed as they happen.
//
// Commands:
//
//	register | login | guest | logout | whoami
//	save                         create a purchase order (interactive)
//	mine | assigned              list records
//	show <id>                    print one record and its wizard payload
//	assign <id> <email>          request a review
//	status <id> <status>         set a record status
//	inbox | read <id>            notifications
//	download <id> <path>         save the latest document
//	help | exit | quit
package cli
