// Command folioctl administers a Folio deployment: admin claims, token
// revocation, schema migrations, project seeding and the contact inbox.
package main

func main() {
	Execute()
}
