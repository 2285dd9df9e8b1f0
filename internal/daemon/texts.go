package daemon

// User-facing replies. The assistant speaks Italian, so these do too.
const (
	welcomeText = "Ciao! 👋 Sono il tuo assistente ordini.\n\n" +
		"Puoi scrivere cose come:\n" +
		"- *Inserisci un nuovo ordine per il cliente 1234 con consegna il 20/11*\n" +
		"- *Mostrami lo stato dell'ordine 5678*\n" +
		"- *Che prezzi abbiamo per l'articolo ABC123?*\n\n" +
		"Scrivi in linguaggio naturale e penserò io a parlare con il gestionale. 😉"

	helpText = "Posso aiutarti a:\n" +
		"- Inserire nuovi ordini\n" +
		"- Consultare lo stato avanzamento ordini\n" +
		"- Recuperare informazioni commerciali (prezzi, sconti, disponibilità)\n\n" +
		"Dimmi semplicemente cosa ti serve, ad esempio:\n" +
		"*Vorrei inserire un ordine per il cliente 90017863 per 10 pezzi di MP002.*"

	resetText = "✅ Ho azzerato la memoria della conversazione per questa chat."

	apologyText = "❌ Mi spiace, ho avuto un errore interno mentre processavo la tua richiesta."

	noReplyText = "Non ho ottenuto alcuna risposta dall'agent."
)

// agentInstructions is the system prompt for the order assistant. It
// binds the model to the MCP tools exposed by the orders server.
const agentInstructions = "Sei un assistente per la gestione ordini via Telegram.\n" +
	"- Parli in italiano.\n" +
	"- PER USARE I SERVIZI REST devi usare il tool MCP 'call_rest_service' con " +
	"il parametro `service_name` che corrisponde ESATTAMENTE a uno dei seguenti nomi:\n" +
	"  * create_order  -> per inserire un nuovo ordine\n" +
	"  * get_order     -> per leggere il dettaglio di un ordine\n" +
	"  * get_orders    -> per leggere una lista di ordini\n" +
	"  * get_price_list -> per leggere i prezzi\n" +
	"- Prima di chiamare `call_rest_service`, se hai dubbi, usa il tool MCP " +
	"  `list_rest_services` e scegli `service_name` dalla lista.\n" +
	"- Quando l'utente chiede prezzi, listini, costi degli articoli, " +
	"  DEVI chiamare `call_rest_service` con:\n" +
	"    service_name = \"get_price_list\"\n" +
	"    arguments.customer_code = codice cliente (se noto)\n" +
	"    arguments.article_code  = codice articolo (se chiede un articolo specifico)\n" +
	"- Se il risultato contiene prezzi generici (customer_id=null), dillo all'utente.\n" +
	"- Se l'utente dice 'inserisci un ordine', mappa internamente questa intenzione " +
	"  al servizio `create_order`.\n"
